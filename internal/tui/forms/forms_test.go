package forms

import "testing"

func TestBookForm_NewBook(t *testing.T) {
	f := &BookForm{Title: "Dune", Pages: " 412 ", Chapters: "One\nTwo"}
	in, err := f.NewBook()
	if err != nil {
		t.Fatalf("NewBook() error = %v", err)
	}
	if in.Title != "Dune" || in.Pages != 412 || in.ChapterText != "One\nTwo" {
		t.Errorf("NewBook() = %+v", in)
	}

	f.Pages = "many"
	if _, err := f.NewBook(); err == nil {
		t.Error("expected error for non-numeric pages")
	}
}

func TestValidators(t *testing.T) {
	if err := notEmpty("title")("  "); err == nil {
		t.Error("blank title should fail")
	}
	for _, ok := range []string{"", "0", "12"} {
		if err := optionalCount(ok); err != nil {
			t.Errorf("optionalCount(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"-1", "x"} {
		if err := optionalCount(bad); err == nil {
			t.Errorf("optionalCount(%q) should fail", bad)
		}
	}
}
