package model

import "time"

type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Location  *string    `json:"location"`
	Tags      *string    `json:"tags"`
	EventDate *Date      `json:"event_date"`
	EventTime *TimeOfDay `json:"event_time"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
