package view

import (
	"mime"
	"net/http"
	"strings"
)

const (
	MediaXML  = "application/xml"
	xmlSuffix = ".xml"
)

// WantsXML решает, нужен ли клиенту XML: по суффиксу .xml в пути или по первому
// распознанному типу в Accept
func WantsXML(r *http.Request) bool {
	if strings.HasSuffix(r.URL.Path, xmlSuffix) {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case MediaXML, "text/xml":
			return true
		case "text/html", "application/xhtml+xml", "*/*":
			return false
		}
	}
	return false
}

// TrimFormat отрезает суффикс формата от id ресурса: "37.xml" -> "37"
func TrimFormat(id string) string {
	return strings.TrimSuffix(id, xmlSuffix)
}
