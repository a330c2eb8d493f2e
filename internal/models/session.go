package models

import "time"

type SessionInfo struct {
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}

type ChatClassMapping struct {
	ClassID         string    `json:"class_id"`
	Name            string    `json:"name"`
	Comment         string    `json:"comment"`
	AssociationTime time.Time `json:"association_time"`
	RegisteredBy    int64     `json:"registered_by"`
}
