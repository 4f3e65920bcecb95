// Package history checks that the local clone holds enough commits for a
// revert to resolve the parent of an applied commit.
package history

import (
	"fmt"

	"github.com/pders01/intent/internal/failure"
	"github.com/pders01/intent/internal/git"
	"github.com/pders01/intent/internal/logging"
	"github.com/pders01/intent/internal/models"
)

const fetchDepthHint = "set fetch-depth: 0 on actions/checkout to fetch full history"

// Validator inspects a local clone
type Validator struct {
	dir string
	log *logging.Logger
}

// NewValidator creates a Validator for the clone at dir ("" for the working directory)
func NewValidator(dir string, log *logging.Logger) *Validator {
	return &Validator{dir: dir, log: log}
}

// Validate reports whether commitSHA and its first parent can be resolved
// locally. A full clone is always valid. A shallow clone is valid only when
// commitSHA is given and both it and its parent are present.
func (v *Validator) Validate(commitSHA string) models.GitHistoryValidationResult {
	if !git.IsGitRepoInDir(v.dir) {
		return models.GitHistoryValidationResult{Error: "not a git repository"}
	}

	shallow, err := git.IsShallowRepoInDir(v.dir)
	if err != nil {
		return models.GitHistoryValidationResult{Error: err.Error()}
	}
	if !shallow {
		return models.GitHistoryValidationResult{Valid: true}
	}

	result := models.GitHistoryValidationResult{IsShallowClone: true}
	if depth, err := git.CommitCountInDir(v.dir); err == nil {
		result.CloneDepth = &depth
	}

	if commitSHA == "" {
		result.Error = fmt.Sprintf("shallow clone%s cannot guarantee parent commits; %s", depthSuffix(result.CloneDepth), fetchDepthHint)
		return result
	}
	if !git.CommitExistsInDir(v.dir, commitSHA) {
		result.Error = fmt.Sprintf("commit %s is not present in shallow clone%s; %s", commitSHA, depthSuffix(result.CloneDepth), fetchDepthHint)
		return result
	}
	if _, err := git.FirstParentInDir(v.dir, commitSHA); err != nil {
		result.Error = fmt.Sprintf("parent of commit %s is outside shallow clone%s; %s", commitSHA, depthSuffix(result.CloneDepth), fetchDepthHint)
		return result
	}

	result.Valid = true
	return result
}

// ValidateAndFail logs and returns an InsufficientHistoryError when the clone
// cannot support reverting commitSHA
func (v *Validator) ValidateAndFail(commitSHA string) error {
	result := v.Validate(commitSHA)
	if result.Valid {
		if result.IsShallowClone {
			v.log.Debugf("shallow clone%s contains %s and its parent", depthSuffix(result.CloneDepth), commitSHA)
		}
		return nil
	}

	v.log.Errorf("cannot revert %s: %s", commitSHA, result.Error)
	return &failure.InsufficientHistoryError{SHA: commitSHA, Result: result}
}

func depthSuffix(depth *int) string {
	if depth == nil {
		return ""
	}
	return fmt.Sprintf(" (depth %d)", *depth)
}
