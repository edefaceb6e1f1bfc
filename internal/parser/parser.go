package parser

import "qte/internal/domain"

// Parser turns a raw lifecycle callback payload into an event
type Parser interface {
	ParseEvent(stage domain.Stage, raw []byte) (domain.Event, error)
}
