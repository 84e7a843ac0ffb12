package analyze

import (
	"context"

	"github.com/sirupsen/logrus"
)

// crossRefDiscount scales a matched contact's confidence to reflect its
// reduced novelty value. Applied uniformly to exact and substring matches.
const crossRefDiscount = 0.8

// DirectoryMatch is an existing contact record found by the directory.
type DirectoryMatch struct {
	ID    int64
	Name  string
	Email string
}

// ContactDirectory is the read-only existing-records store consulted by
// the cross-reference resolver. Implementations return (nil, nil) when no
// record matches.
type ContactDirectory interface {
	FindByNameOrEmail(ctx context.Context, name, email string) (*DirectoryMatch, error)
}

// resolveContacts deduplicates extracted contacts against the directory.
// A match sets ExistsInSystem and multiplies confidence by the discount —
// never raises it. Lookup errors are swallowed per contact: the contact
// stays marked as new rather than aborting the batch. Contacts whose
// discounted confidence falls below the floor are dropped so the floor
// invariant holds on the final result.
//
// Returns the resolved contacts and the number of failed lookups.
func (a *Analyzer) resolveContacts(ctx context.Context, contacts []Contact) ([]Contact, int) {
	if a.directory == nil || len(contacts) == 0 {
		return contacts, 0
	}

	out := make([]Contact, 0, len(contacts))
	lookupErrs := 0

	for _, contact := range contacts {
		match, err := a.directory.FindByNameOrEmail(ctx, contact.Name, contact.Email)
		if err != nil {
			a.log.WithError(err).WithField("contact", contact.Name).Warn("directory lookup failed, treating contact as new")
			lookupErrs++
			out = append(out, contact)
			continue
		}
		if match != nil {
			contact.ExistsInSystem = true
			contact.Confidence *= crossRefDiscount
			a.log.WithFields(logrus.Fields{
				"contact":  contact.Name,
				"match_id": match.ID,
			}).Debug("contact already known, confidence discounted")
		}
		if contact.Confidence < a.cfg.Thresholds.ContactFloor {
			continue
		}
		out = append(out, contact)
	}

	return out, lookupErrs
}
