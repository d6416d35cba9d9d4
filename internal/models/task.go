package models

import (
	"encoding/xml"
	"strings"
	"time"
	"unicode/utf8"
)

// Бакеты срока выполнения (значения task_due_date)
const (
	BucketOverdue      = "overdue"
	BucketDueASAP      = "due_asap"
	BucketDueToday     = "due_today"
	BucketDueTomorrow  = "due_tomorrow"
	BucketDueThisWeek  = "due_this_week"
	BucketDueNextWeek  = "due_next_week"
	BucketDueLater     = "due_later"
	BucketSpecificTime = "specific_time"
)

const maxNameLength = 255

// Attributes - атрибуты задачи в том виде, в каком их прислал клиент
type Attributes map[string]string

type Task struct {
	XMLName        xml.Name          `xml:"task" json:"-"`
	ID             string            `xml:"id" json:"id"`
	UserID         string            `xml:"user-id" json:"user_id"`
	AssignedTo     string            `xml:"assigned-to,omitempty" json:"assigned_to,omitempty"`
	Name           string            `xml:"name" json:"name"`
	Category       string            `xml:"category,omitempty" json:"category,omitempty"`
	Bucket         string            `xml:"bucket,omitempty" json:"bucket,omitempty"`
	Calendar       string            `xml:"-" json:"-"`
	DueAt          *time.Time        `xml:"due-at,omitempty" json:"due_at,omitempty"`
	BackgroundInfo string            `xml:"background-info,omitempty" json:"background_info,omitempty"`
	CompletedAt    *time.Time        `xml:"completed-at,omitempty" json:"completed_at,omitempty"`
	CreatedAt      time.Time         `xml:"created-at" json:"created_at"`
	UpdatedAt      time.Time         `xml:"updated-at" json:"updated_at"`
	Errors         map[string]string `xml:"-" json:"-"`
}

// NewTask создаёт несохранённую задачу из атрибутов
func NewTask(attrs Attributes) *Task {
	t := &Task{}
	t.Apply(attrs)
	return t
}

// Apply переносит известные атрибуты на задачу, неизвестные ключи игнорируются
func (t *Task) Apply(attrs Attributes) {
	for key, value := range attrs {
		switch key {
		case "name":
			t.Name = strings.TrimSpace(value)
		case "category":
			t.Category = value
		case "bucket":
			t.Bucket = value
		case "calendar":
			t.Calendar = strings.TrimSpace(value)
		case "assigned_to":
			t.AssignedTo = value
		case "background_info":
			t.BackgroundInfo = value
		}
	}
}

func (t *Task) IsNew() bool {
	return t.ID == ""
}

func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}

func (t *Task) Valid() bool {
	return len(t.Errors) == 0
}

func (t *Task) AddError(field, message string) {
	if t.Errors == nil {
		t.Errors = make(map[string]string)
	}
	t.Errors[field] = message
}

// Validate проверяет задачу; categories и buckets - допустимые ключи из настроек
func (t *Task) Validate(categories map[string]string, buckets []string) bool {
	t.Errors = nil

	if t.Name == "" {
		t.AddError("name", "can't be blank")
	} else if utf8.RuneCountInString(t.Name) > maxNameLength {
		t.AddError("name", "is too long (maximum is 255 characters)")
	}

	if t.Category != "" {
		if _, ok := categories[t.Category]; !ok {
			t.AddError("category", "is not included in the list")
		}
	}

	if t.Bucket != "" && !contains(buckets, t.Bucket) {
		t.AddError("bucket", "is not included in the list")
	}

	if t.Bucket == BucketSpecificTime && t.DueAt == nil {
		t.AddError("calendar", "is not a valid date")
	}

	return t.Valid()
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
