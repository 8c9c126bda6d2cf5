// Package validation provides struct tag validation with error collection.
//
// Unlike ad-hoc field checks that stop at the first problem, ValidateStruct
// reports every failing field so callers can surface the complete list of
// remediation items in one round trip.
//
//	type Token struct {
//	    Token        string `json:"token" validate:"required"`
//	    RefreshToken string `json:"refreshToken" validate:"required"`
//	}
//	errs := validation.ValidateStruct(token)
package validation
