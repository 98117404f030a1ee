//go:build !windows

package fsgw

import "github.com/s3c/s3c/internal/model"

// driveListing has no drive letters to enumerate off Windows: List on
// PseudoRoot yields the single filesystem root "/".
func driveListing() (model.Listing, error) {
	return model.Listing{{Name: "/", Kind: model.Directory}}, nil
}
