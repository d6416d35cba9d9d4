package view

import (
	"encoding/xml"
	"fmt"

	"github.com/sun1tar/crm-tasks/internal/models"
)

type Serializer interface {
	XML(v any) ([]byte, error)
}

type XMLSerializer struct{}

type taskListXML struct {
	XMLName xml.Name       `xml:"tasks"`
	Type    string         `xml:"type,attr"`
	Tasks   []*models.Task `xml:"task"`
}

type errorsXML struct {
	XMLName xml.Name `xml:"errors"`
	Errors  []string `xml:"error"`
}

// ErrorList - список ошибок для XML-ответа
type ErrorList []string

// XML сериализует задачу, список задач или список ошибок
func (XMLSerializer) XML(v any) ([]byte, error) {
	var payload any
	switch val := v.(type) {
	case *models.Task:
		payload = val
	case []*models.Task:
		payload = taskListXML{Type: "array", Tasks: val}
	case ErrorList:
		payload = errorsXML{Errors: val}
	default:
		return nil, fmt.Errorf("xml: unsupported type %T", v)
	}

	body, err := xml.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
