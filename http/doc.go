// Package http provides Laravel-style JSON response helpers used by the
// container inspector.
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(bindings)                   // 200 {"data": ...}
//	res.NotFound()                          // 404 {"message": "Not found."}
//	res.ErrorWithCode(500, "CODE", "text")  // 500 {"code": "CODE", "message": "text"}
package http
