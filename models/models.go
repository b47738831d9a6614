package models

import (
	"time"
)

// Video represents a YouTube video as reported by the reactions API
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Thumbnail    string    `json:"thumbnail"`
	PublishedAt  time.Time `json:"publishedAt"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Reaction links a reacting video to the video it reacts to
type Reaction struct {
	ReactionID  string    `json:"reactionId"`
	VideoID     string    `json:"videoId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ReportCount int       `json:"reportCount"`
	Reaction    Video     `json:"reaction"`
	ReactionTo  Video     `json:"reactionTo"`
}

// Channel holds the number of reactions published by a single channel
type Channel struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// TopVideo is a video together with the number of reactions targeting it
type TopVideo struct {
	Video
	Count int `json:"count"`
}

// Metrics holds the summary statistics derived from a list of reactions
type Metrics struct {
	Reactions   int        `json:"reactions"`
	Videos      int        `json:"videos"`
	Channels    int        `json:"channels"`
	Recent      []Video    `json:"recent"`
	TopVideos   []TopVideo `json:"topVideos"`
	TopChannels []Channel  `json:"topChannels"`
}
