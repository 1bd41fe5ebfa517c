package rest

import "fmt"

// Class of a status code, given by its first digit.
type Class int

const (
	ClassUnknown Class = iota
	Informational
	Success
	Redirection
	ClientError
	ServerError
)

func ClassOf(statusCode int) Class {
	if statusCode < 100 || 600 <= statusCode {
		return ClassUnknown
	}
	return Class(statusCode / 100)
}

func (c Class) String() string {
	switch c {
	case Informational:
		return "informational"
	case Success:
		return "success"
	case Redirection:
		return "redirection"
	case ClientError:
		return "client error"
	case ServerError:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", int(c))
	}
}
