package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mpd2mp4/internal/services"
)

// Ref kinds, in the order they are preferred when choosing RemoteURL.
const (
	RefLocation       = "Location"
	RefBaseURL        = "BaseURL"
	RefMedia          = "media"
	RefInitialization = "initialization"
	RefSourceURL      = "sourceURL"
	RefSegmentURL     = "SegmentURL"
)

var preference = []string{RefLocation, RefBaseURL, RefMedia, RefInitialization, RefSourceURL, RefSegmentURL}

// Report summarizes the remote references found in a manifest.
type Report struct {
	Path          string
	Size          int64
	HasRemoteRefs bool
	// RemoteURL is the preferred absolute URL to hand to the downloader.
	RemoteURL string
	// RemoteKind names the element or attribute RemoteURL came from.
	RemoteKind string
	RemoteRefs int
	// Partial is set when the document stopped parsing early; the report
	// covers everything read up to that point.
	Partial bool
}

// Inspect scans a local MPD for absolute http(s) references. It does not
// validate the manifest; malformed XML yields a partial report.
func Inspect(path string) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return Report{}, services.Wrap(services.ErrInvalidInput, "manifest", "open", "Could not read manifest", err)
	}
	defer file.Close()

	report := Report{Path: path}
	if info, err := file.Stat(); err == nil {
		report.Size = info.Size()
	}

	found, partial, err := scan(file)
	if err != nil {
		return Report{}, services.Wrap(services.ErrInvalidInput, "manifest", "read", "Could not read manifest", err)
	}
	report.Partial = partial
	for _, kind := range preference {
		refs := found[kind]
		report.RemoteRefs += len(refs)
		if report.RemoteURL == "" && len(refs) > 0 {
			report.RemoteURL = refs[0]
			report.RemoteKind = kind
		}
	}
	report.HasRemoteRefs = report.RemoteRefs > 0
	return report, nil
}

func scan(r io.Reader) (map[string][]string, bool, error) {
	found := make(map[string][]string)
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	var textTarget string
	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return found, false, nil
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return found, true, nil
			}
			return nil, false, fmt.Errorf("decode manifest: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case RefMedia, RefInitialization, RefSourceURL:
					add(found, attr.Name.Local, attr.Value)
				}
			}
			switch t.Name.Local {
			case RefLocation, RefBaseURL, RefSegmentURL:
				textTarget = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if textTarget != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if textTarget != "" && t.Name.Local == textTarget {
				add(found, textTarget, text.String())
				textTarget = ""
			}
		}
	}
}

func add(found map[string][]string, kind, value string) {
	value = strings.TrimSpace(value)
	if !IsRemote(value) {
		return
	}
	found[kind] = append(found[kind], value)
}

// IsRemote reports whether value is an absolute http(s) URL that is not an
// XML schema reference.
func IsRemote(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return !strings.Contains(lower, "w3.org")
}
