package main

import "net/http"

// resetHandler wipes every table so end-to-end test runs start from a
// clean database. The route is only mounted outside production.
func (app *application) resetHandler(w http.ResponseWriter, r *http.Request) {
	_, err := app.db.ExecContext(r.Context(), "TRUNCATE TABLE users, blogs, blog_likes, comments RESTART IDENTITY CASCADE")
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.userService.FlushCache()

	w.WriteHeader(http.StatusNoContent)
}
