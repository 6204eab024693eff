// internal/domain/card_status.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"bankcards/internal/util"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// ParseCardStatus converts user input into a CardStatus.
func ParseCardStatus(s string) (CardStatus, error) {
	switch st := CardStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown card status %q", s)
}

// IsExpired reports whether the expiry date lies strictly before the calendar date of now.
// A card is still valid on its expiry date.
func (c *Card) IsExpired(now time.Time) bool {
	return DateOf(c.ExpiryDate).Before(DateOf(now))
}

// EffectiveStatus derives the status from calendar time instead of trusting
// a stored value the expiry sweep may not have reached yet.
func (c *Card) EffectiveStatus(now time.Time) CardStatus {
	if c.Status == CardStatusExpired || c.IsExpired(now) {
		return CardStatusExpired
	}
	return c.Status
}

// CheckUsable returns a *util.CardNotUsableError unless the card may move money.
func (c *Card) CheckUsable(side util.CardSide, now time.Time) error {
	switch c.EffectiveStatus(now) {
	case CardStatusActive:
		return nil
	case CardStatusExpired:
		return &util.CardNotUsableError{Which: side, Reason: util.UnusableExpired}
	default:
		return &util.CardNotUsableError{Which: side, Reason: util.UnusableBlocked}
	}
}

// TransitionTo moves the card to target when the lifecycle allows it.
//
//	ACTIVE  -> BLOCKED   always
//	BLOCKED -> ACTIVE    unless expired
//	EXPIRED -> *         never
//
// EXPIRED is never a valid target; it is reached only through calendar time.
func (c *Card) TransitionTo(target CardStatus, now time.Time) error {
	if target != CardStatusActive && target != CardStatusBlocked {
		return util.InvalidOperation(util.ReasonInvalidTarget)
	}
	current := c.EffectiveStatus(now)
	if current == CardStatusExpired {
		return util.InvalidOperation(util.ReasonExpired)
	}
	if current == target {
		return util.InvalidOperation(util.ReasonAlreadyInState)
	}
	c.Status = target
	c.UpdatedAt = time.Now().UTC()
	return nil
}
