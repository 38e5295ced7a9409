// Package http provides request and response helpers for the JSON API.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	// Bind a JSON or urlencoded body into a struct
//	var payload struct {
//	    Event string `json:"event"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	page := req.Query("page", "1")
//	id   := req.RouteParam("id") // chi route params
//	val  := req.Header("X-Request-Id")
//
// Bodies are capped at MaxBodyBytes; an empty body fails with ErrEmptyBody.
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)           // raw JSON with status
//	res.Success(data)             // 200 {"data": ...}
//	res.Created(data)             // 201 {"data": ...}
//	res.NoContent()               // 204
//
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.NotFound()                // 404 {"message": "Not found."}
//	res.ServerError()             // 500 {"message": "Server Error."}
//	res.ValidationError(errs)     // 422 {"errors": {"field": ["msg"]}}
package http
