package gdrive

import "testing"

func TestExtractFileID(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{
			name: "file/d path shape",
			link: "https://drive.google.com/file/d/1AbCdEfGhIjKlMnOp/view?usp=sharing",
			want: "1AbCdEfGhIjKlMnOp",
		},
		{
			name: "file/d without trailing segment",
			link: "https://drive.google.com/file/d/1AbCdEfGhIjKlMnOp",
			want: "1AbCdEfGhIjKlMnOp",
		},
		{
			name: "open?id query shape",
			link: "https://drive.google.com/open?id=1AbCdEfGhIjKlMnOp",
			want: "1AbCdEfGhIjKlMnOp",
		},
		{
			name: "uc?id download shape",
			link: "https://drive.google.com/uc?id=1AbCdEfGhIjKlMnOp&export=download",
			want: "1AbCdEfGhIjKlMnOp",
		},
		{
			name: "bare id passes through",
			link: "1AbCdEfGhIjKlMnOp",
			want: "1AbCdEfGhIjKlMnOp",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractFileID(tc.link)
			if err != nil {
				t.Fatalf("ExtractFileID(%q) failed: %v", tc.link, err)
			}
			if got != tc.want {
				t.Errorf("ExtractFileID(%q) = %q, want %q", tc.link, got, tc.want)
			}
		})
	}
}

func TestExtractFileID_Invalid(t *testing.T) {
	for _, link := range []string{"", "   ", "https://drive.google.com/drive/folders/abc?x=1"} {
		if id, err := ExtractFileID(link); err == nil {
			t.Errorf("ExtractFileID(%q) = %q, want error", link, id)
		}
	}
}
