package userservice

import (
	"github.com/hazelbrook/bloglist/internal/common"
)

const minPasswordLength = 3

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 3, 72), "username", "must be between 3 and 72 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
