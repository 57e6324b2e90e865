package scanner

import (
	"context"
	"path/filepath"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// mailVersions are the Mail data folders, newest first.
var mailVersions = []string{"V10", "V9", "V8", "V7"}

// scanMailCache reports the attachment download folder of the newest Mail
// data version that has one.
func (s *Scanner) scanMailCache(_ context.Context) []junk.Item {
	for _, v := range mailVersions {
		path := filepath.Join(s.layout.MailDir(), v, "Attachments")
		if size := utils.SizeOf(path); size > 0 {
			return []junk.Item{junk.NewItem(junk.MailAttachments, path, "Mail Attachment Downloads", size, "Mail")}
		}
	}
	return nil
}

type browser struct {
	name  string
	paths []string
	t     junk.Type
}

func (s *Scanner) browsers() []browser {
	home := s.layout.HomePath
	return []browser{
		{"Safari", []string{
			home("Library/Caches/com.apple.Safari"),
			home("Library/Safari/LocalStorage"),
			home("Library/WebKit/com.apple.Safari"),
		}, junk.SafariCache},
		{"Chrome", []string{
			home("Library/Caches/Google/Chrome"),
			home("Library/Application Support/Google/Chrome/Default/Code Cache"),
		}, junk.ChromeCache},
		{"Brave", []string{
			home("Library/Caches/BraveSoftware"),
			home("Library/Application Support/BraveSoftware/Brave-Browser/Default/Code Cache"),
		}, junk.ChromeCache},
		{"Firefox", []string{
			home("Library/Caches/Firefox"),
			home("Library/Caches/Mozilla"),
		}, junk.FirefoxCache},
		{"Arc", []string{
			home("Library/Caches/Arc"),
			home("Library/Caches/company.thebrowser.Browser"),
		}, junk.ChromeCache},
		{"Edge", []string{home("Library/Caches/Microsoft Edge")}, junk.ChromeCache},
		{"Opera", []string{home("Library/Caches/com.operasoftware.Opera")}, junk.ChromeCache},
	}
}

// scanBrowserCaches reports the cache folders of known browsers.
func (s *Scanner) scanBrowserCaches(_ context.Context) []junk.Item {
	var items []junk.Item
	for _, b := range s.browsers() {
		for _, path := range b.paths {
			if size := utils.SizeOf(path); size > 0 {
				items = append(items, junk.NewItem(b.t, path, b.name+": "+filepath.Base(path), size, b.name))
			}
		}
	}
	return items
}

// scanLanguagePacks reports nothing. Removing localizations from inside an
// application bundle breaks its code signature.
func (s *Scanner) scanLanguagePacks(_ context.Context) []junk.Item {
	return nil
}
