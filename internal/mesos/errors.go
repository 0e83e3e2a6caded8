package mesos

import "github.com/pkg/errors"

func errOfferNotFound(offerID uint64) error {
	return errors.Errorf("no outstanding offer with id %d", offerID)
}
