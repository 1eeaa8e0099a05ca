// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import "fmt"

// BadArgumentError reports a workflow-level argument that failed
// validation (an unknown region name, a range end before its start).
type BadArgumentError struct {
	Msg string
}

func (e *BadArgumentError) Error() string {
	return fmt.Sprintf("workflow: %s", e.Msg)
}

// VerificationFailedError reports a region whose device readback did
// not match the data that was written or was expected to be blank.
type VerificationFailedError struct {
	Region string
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("workflow: verification failed for %s", e.Region)
}
