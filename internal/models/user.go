package models

import (
	"encoding/xml"
	"strings"
	"time"
)

type User struct {
	XMLName        xml.Name  `xml:"user" json:"-"`
	ID             string    `xml:"id" json:"id"`
	Username       string    `xml:"username" json:"username"`
	FirstName      string    `xml:"first-name" json:"first_name"`
	LastName       string    `xml:"last-name" json:"last_name"`
	PasswordDigest string    `xml:"-" json:"-"`
	CreatedAt      time.Time `xml:"created-at" json:"created_at"`
}

// FullName возвращает имя для отображения, при пустом имени - логин
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// RequestContext - текущий пользователь и текущая вкладка списка задач
type RequestContext struct {
	User *User
	View string
}

// Totals - количество открытых задач по бакетам для сайдбара
type Totals map[string]int

// Вкладки списка задач (TASK_STATUSES)
const (
	ViewPending   = "pending"
	ViewAssigned  = "assigned"
	ViewCompleted = "completed"
)

// NormalizeView приводит неизвестную вкладку к pending
func NormalizeView(view string) string {
	switch view {
	case ViewPending, ViewAssigned, ViewCompleted:
		return view
	default:
		return ViewPending
	}
}
