package ecode

import "fmt"

const (
	requiredMsg = "required"
	invalidMsg  = "invalid"
	existMsg    = "already exists"
	notExistMsg = "does not exist"
	expiredMsg  = "expired"
)

// FieldIsRequired returns field required message
func FieldIsRequired(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], requiredMsg)
	}
	return requiredMsg
}

// FieldIsInvalid returns field invalid message
func FieldIsInvalid(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], invalidMsg)
	}
	return invalidMsg
}

// AlreadyExist returns already exist message
func AlreadyExist(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], existMsg)
	}
	return existMsg
}

// NotExist returns not exist message
func NotExist(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], notExistMsg)
	}
	return notExistMsg
}

// Expired returns expired message
func Expired(k ...string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], expiredMsg)
	}
	return expiredMsg
}
