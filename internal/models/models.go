package models

import (
	"fmt"
	"strings"
)

// MaxDescriptionLen caps task descriptions at creation time.
const MaxDescriptionLen = 500

// TimestampLayout renders local-clock timestamps without a timezone suffix,
// matching the textual ISO-8601 values persisted in the tasks table.
const TimestampLayout = "2006-01-02T15:04:05.999999"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
	StatusClear     Status = "CLEAR"
)

// ParseStatus normalizes raw input (case-insensitive) into one of the four
// statuses, rejecting anything outside the set.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusActive, StatusCompleted, StatusAbandoned, StatusClear:
		return s, nil
	default:
		return "", fmt.Errorf("%q is not one of ACTIVE, COMPLETED, ABANDONED, CLEAR", raw)
	}
}

// Terminal reports whether the status closes a task and carries a finish timestamp.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusAbandoned, StatusClear:
		return true
	}
	return false
}

// ListFilter selects which statuses a flat task listing includes.
type ListFilter int

const (
	FilterAll ListFilter = iota
	FilterNonClear
	FilterActiveOnly
)

// Task is a unit of trackable work, optionally nested under a parent task.
type Task struct {
	ID              int64   `json:"id"`
	Description     string  `json:"description"`
	StartTimestamp  string  `json:"start_timestamp"`
	Status          Status  `json:"status"`
	FinishTimestamp *string `json:"finish_timestamp"`
	ParentID        *int64  `json:"parent_id"`
}

// TaskNode is a task together with its nested children, ordered as persisted.
type TaskNode struct {
	Task
	Children []*TaskNode `json:"children_tasks"`
}

// ColumnInfo describes one column of the tasks table.
type ColumnInfo struct {
	CID          int     `json:"cid"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	NotNull      bool    `json:"notnull"`
	DefaultValue *string `json:"default_value"`
	IsPK         bool    `json:"is_pk"`
}

// TableSchema is the introspection payload served by the schema endpoint.
type TableSchema struct {
	TableName       string       `json:"table_name"`
	CreateStatement string       `json:"create_statement"`
	Columns         []ColumnInfo `json:"columns"`
}
