package models

import "time"

// SessionInfo describes an open editing session.
type SessionInfo struct {
	ID           string    `json:"id"`
	FileID       string    `json:"fileId,omitempty"`
	FigureName   string    `json:"figureName,omitempty"`
	PanelCount   int       `json:"panelCount"`
	Selected     int       `json:"selected"`
	Unsaved      bool      `json:"unsaved"`
	CanUndo      bool      `json:"canUndo"`
	CanRedo      bool      `json:"canRedo"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}
