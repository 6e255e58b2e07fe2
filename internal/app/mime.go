package app

import (
	"log"
	"mime"
)

// Some minimal container images ship without /etc/mime.types, and the
// console's stylesheets then come back as text/plain and get refused by
// the browser's CSP. Pin the types the embedded static tree serves.
var staticMIMETypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".svg": "image/svg+xml",
}

func init() {
	for ext, typ := range staticMIMETypes {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			log.Printf("app: register MIME type for %s: %v", ext, err)
		}
	}
}
