package parsers

import (
	"fmt"

	"github.com/username/daoledger/src/registry"
)

// Export kinds as they appear in each wallet folder.
const (
	KindToken    = "token"
	KindInternal = "internal"
)

func GetParser(kind string, reg *registry.Registry) (Parser, error) {
	switch kind {
	case KindToken:
		return NewTokenParser(reg), nil
	case KindInternal:
		return NewInternalParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for export kind: %s", kind)
	}
}
