package lending

import (
	"fmt"
)

type ErrResponse struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

func (e ErrResponse) Error() string {
	return e.Message
}

// Is matches by code, so a response carrying an extended message still
// matches its base value.
func (e ErrResponse) Is(target error) bool {
	t, ok := target.(ErrResponse)
	return ok && t.Code == e.Code
}

var ErrResponseBookEntryBlankFields = ErrResponse{100, "the fields title and author must be filled correctly."}
var ErrResponseBookNotFound = ErrResponse{101, "book not found"}
var ErrResponseEntryInvalidJSON = ErrResponse{102, "invalid json request."}
var ErrResponseIdInvalidFormat = ErrResponse{103, "the endpoint is not a valid format ID. Must be /books/{uuid} or /loans/{uuid}"}
var ErrResponseQuerySearchByInvalid = ErrResponse{104, "query parameter 'search_by' must be: title, author or isbn."}
var ErrResponseQuerySortByInvalid = ErrResponse{105, "query parameter 'sort_by' must be: title, author, published_year or created_at. 'sort_direction' must be asc or desc."}
var ErrResponseQueryPageInvalid = ErrResponse{106, "query parameter 'page' must be an int starting in 1. 'page_size' must be an int beetween 1 and 30."}
var ErrResponseQueryPageOutOfRange = ErrResponse{107, "page out of range."}
var ErrResponseFromRespository = ErrResponse{108, "error from repository: "}
var ErrResponseRequestTimeout = ErrResponse{109, "error from context:"}
var ErrResponseLoanNotFound = ErrResponse{110, "loan not found"}
var ErrResponseAvailabilityConflict = ErrResponse{111, "book availability does not match the expected state"}
var ErrResponseBookNotAvailable = ErrResponse{112, "book is not available for borrowing"}
var ErrResponseLoanAlreadyReturned = ErrResponse{113, "loan is already returned"}
var ErrResponsePartialFailure = ErrResponse{114, "loan and book records may be inconsistent: "}
var ErrResponseUnauthenticated = ErrResponse{115, "a valid user identity is required"}
var ErrResponseBorrowEntryBlankFields = ErrResponse{116, "field book_id must be filled correctly."}
var ErrResponseRateLimited = ErrResponse{117, "too many requests"}

// NewErrPartialFailure reports a transaction whose rollback failed after
// cause, leaving the loan and book records in an unknown state.
func NewErrPartialFailure(cause, rollbackErr error) ErrResponse {
	return ErrResponse{
		Code:    ErrResponsePartialFailure.Code,
		Message: ErrResponsePartialFailure.Message + fmt.Sprintf("%v (rollback: %v)", cause, rollbackErr),
	}
}

type ErrNotificationFailed struct {
	statusCode int
}

func (e ErrNotificationFailed) Error() string {
	return fmt.Sprintf("ntfy wrong response - want: 200 OK, got: %d", e.statusCode)
}

func NewErrNotificationFailed(statusCode int) ErrNotificationFailed {
	return ErrNotificationFailed{statusCode: statusCode}
}
