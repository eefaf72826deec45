package tablecfg

// Default returns the built-in table set the application ships with. A TOML
// overlay file can replace or extend these declarations at startup.
func Default() *Set {
	s, err := NewSet(
		Table{
			Name:       "Personel",
			PK:         []string{"Sicil"},
			Columns:    []string{"Sicil", "Ad", "Soyad", "Gorev", "IseGirisTarihi"},
			Syncable:   true,
			SyncMode:   SyncBidirectional,
			DateFields: []string{"IseGirisTarihi"},
		},
		Table{
			Name:       "PersonelIzin",
			PK:         []string{"IzinId"},
			Columns:    []string{"IzinId", "Sicil", "BaslangicTarihi", "BitisTarihi", "GunSayisi"},
			Syncable:   true,
			SyncMode:   SyncBidirectional,
			DateFields: []string{"BaslangicTarihi", "BitisTarihi"},
		},
		Table{
			Name:       "Cihazlar",
			PK:         []string{"Cihazid"},
			Columns:    []string{"Cihazid", "Ad", "Marka", "Durum", "AlimTarihi"},
			Syncable:   true,
			SyncMode:   SyncBidirectional,
			DateFields: []string{"AlimTarihi"},
		},
		Table{
			Name:       "CihazAriza",
			PK:         []string{"ArizaId"},
			Columns:    []string{"ArizaId", "Cihazid", "ArizaTarihi", "Aciklama", "EkDosya"},
			Syncable:   true,
			SyncMode:   SyncBidirectional,
			DateFields: []string{"ArizaTarihi"},
		},
		Table{
			Name:       "Kalibrasyon",
			PK:         []string{"Cihazid", "KalibrasyonTarihi"},
			Columns:    []string{"Cihazid", "KalibrasyonTarihi", "Sonuc", "Sertifika"},
			Syncable:   true,
			SyncMode:   SyncBidirectional,
			DateFields: []string{"KalibrasyonTarihi"},
		},
		Table{
			Name:       "Tatiller",
			PK:         []string{"Tarih"},
			Columns:    []string{"Tarih", "Aciklama"},
			Syncable:   true,
			SyncMode:   SyncPullOnly,
			DateFields: []string{"Tarih"},
		},
	)
	if err != nil {
		// The built-in declarations are validated by tests; a failure here
		// is a programming error.
		panic(err)
	}
	return s
}
