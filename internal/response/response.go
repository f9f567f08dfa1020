package response

import "encoding/json"

// Response is what a handler hands back to be sent with 200 OK.
type Response struct {
	ContentType string
	// Data is the body; nil means no body.
	Data []byte
	// Cookies become one Set-Cookie header each, with Path=/.
	Cookies map[string]string
}

// Nothing is a 200 response without a body.
func Nothing() *Response {
	return &Response{ContentType: "text/plain"}
}

// Text is a plain text response.
func Text(text string) *Response {
	return &Response{ContentType: "text/plain", Data: []byte(text)}
}

// HTML is an HTML response.
func HTML(html string) *Response {
	return &Response{ContentType: "text/html", Data: []byte(html)}
}

// JSON marshals v into a text/javascript response.
func JSON(v interface{}) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{ContentType: "text/javascript", Data: data}, nil
}

// Bytes is a response with arbitrary content.
func Bytes(contentType string, data []byte) *Response {
	return &Response{ContentType: contentType, Data: data}
}

// SetCookie adds a cookie and returns r for chaining.
func (r *Response) SetCookie(name, value string) *Response {
	if r.Cookies == nil {
		r.Cookies = make(map[string]string)
	}
	r.Cookies[name] = value
	return r
}
