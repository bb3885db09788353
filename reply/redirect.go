package reply

import "net/http"

// Redirect builds a 302 outcome pointing at url. When src carries
// Set-Cookie headers they are propagated verbatim onto the redirect so
// session state survives the hop; otherwise the redirect is bare.
func Redirect(url string, src http.Header) *Outcome {
	header := http.Header{}
	header.Set("Location", url)

	if src != nil {
		if cookies := src.Values("Set-Cookie"); len(cookies) > 0 {
			header["Set-Cookie"] = append([]string(nil), cookies...)
		}
	}

	return &Outcome{
		Kind:       KindRedirect,
		StatusCode: http.StatusFound,
		Header:     header,
	}
}
