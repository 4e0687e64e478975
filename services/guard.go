package services

import (
	"fmt"

	"backgammon-platform/models"

	"gorm.io/gorm"
)

// LinearizationField is the designated column of a record whose value says
// whether a guarded side effect already happened (a proposal's session_id,
// a session's status). Guarded flows follow one discipline:
//
//  1. Recheck the field right before writing; if the effect is done, return
//     the existing result instead of repeating it.
//  2. Do the side effect's own writes.
//  3. Write the field last with Commit, conditional on it still being open.
//
// A caller that loses the race between 1 and 3 gets won == false and must
// treat the other caller's result as authoritative. No locks are taken.
type LinearizationField struct {
	Model  any
	Column string
	// Open is a SQL condition that holds while the effect has not happened.
	Open     string
	OpenArgs []any
}

// Done re-reads the record and reports whether the field has left its open
// state. A missing record reports false with gorm.ErrRecordNotFound.
func (f LinearizationField) Done(db *gorm.DB, id string) (bool, error) {
	var total int64
	if err := db.Model(f.Model).Where("id = ?", id).Count(&total).Error; err != nil {
		return false, fmt.Errorf("recheck %s: %w", f.Column, err)
	}
	if total == 0 {
		return false, gorm.ErrRecordNotFound
	}
	var open int64
	if err := db.Model(f.Model).Where("id = ?", id).Where(f.Open, f.OpenArgs...).Count(&open).Error; err != nil {
		return false, fmt.Errorf("recheck %s: %w", f.Column, err)
	}
	return open == 0, nil
}

// Commit writes values only if the field is still open, and reports whether
// this caller's write landed.
func (f LinearizationField) Commit(db *gorm.DB, id string, values map[string]any) (bool, error) {
	res := db.Model(f.Model).Where("id = ?", id).Where(f.Open, f.OpenArgs...).Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("commit %s: %w", f.Column, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// sessionStatusIs guards a transition out of status.
func sessionStatusIs(status models.SessionStatus) LinearizationField {
	return LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "status",
		Open:     "status = ?",
		OpenArgs: []any{status},
	}
}

// sessionNotCompleted guards settlement: once status is completed nothing
// may settle again.
func sessionNotCompleted() LinearizationField {
	return LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "status",
		Open:     "status <> ?",
		OpenArgs: []any{models.StatusCompleted},
	}
}

// winnerUnclaimed guards the first naming of a winner during settlement.
func winnerUnclaimed() LinearizationField {
	return LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "winner_id",
		Open:     "winner_id IS NULL AND status <> ?",
		OpenArgs: []any{models.StatusCompleted},
	}
}

// turnUnrolled guards a roll: the mover still owns the turn and holds no dice.
func turnUnrolled(turn models.Seat) LinearizationField {
	return LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "die1",
		Open:     "status = ? AND turn = ? AND die1 = 0 AND die2 = 0",
		OpenArgs: []any{models.StatusInProgress, turn},
	}
}

// turnOwnedBy guards an end of turn so a duplicate call cannot flip twice.
func turnOwnedBy(turn models.Seat) LinearizationField {
	return LinearizationField{
		Model:    &models.MatchSession{},
		Column:   "turn",
		Open:     "status = ? AND turn = ?",
		OpenArgs: []any{models.StatusInProgress, turn},
	}
}

// proposalUninstantiated guards turning a pending proposal into a session.
// A decline closes it as well.
func proposalUninstantiated() LinearizationField {
	return LinearizationField{
		Model:    &models.GameProposal{},
		Column:   "session_id",
		Open:     "session_id IS NULL AND status = ?",
		OpenArgs: []any{models.ProposalPending},
	}
}
