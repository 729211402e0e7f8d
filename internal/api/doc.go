// Package api handles incoming HTTP requests for exam-paper generation. It
// decodes JSON and form bodies, including the field aliases older clients
// send, hands them to the paper service and writes either a JSON envelope or
// the rendered PDF as an attachment.
package api
