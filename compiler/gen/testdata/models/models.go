package models

import "time"

type Audit struct {
	CreatedBy string
	CreatedAt time.Time
}

type Article struct {
	Audit
	ID       int64 `velox:",pk,autoincrement"`
	Title    string
	Views    int
	Tags     []string
	Reviewer *string
	Draft    bool   `velox:"-"`
	internal string
}
