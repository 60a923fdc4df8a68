package blogservice

import (
	"github.com/hazelbrook/bloglist/internal/common"
)

func validateBlog(v *common.Validator, title, url string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(url != "", "url", "must be provided")
}

func validateCommentText(v *common.Validator, text string) {
	v.Check(text != "", "text", "must be provided")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
