//go:build windows

package fsgw

import (
	"os"

	"github.com/s3c/s3c/internal/model"
)

// driveListing enumerates available drive letters when path is
// PseudoRoot (spec §4.4).
func driveListing() (model.Listing, error) {
	var entries []model.Entry
	for letter := 'A'; letter <= 'Z'; letter++ {
		root := string(letter) + `:\`
		if _, err := os.Stat(root); err == nil {
			entries = append(entries, model.Entry{Name: string(letter) + ":", Kind: model.Directory})
		}
	}
	return model.Listing(entries), nil
}
