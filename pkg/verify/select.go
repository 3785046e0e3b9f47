package verify

import "github.com/cgast/dialogcheck/pkg/result"

// SelectMessages returns the fulfillment messages of the given kind that
// target exactly the given surface, in their original order. The default
// surface is not a wildcard: it only matches messages with no platform set.
func SelectMessages(r result.QueryResult, kind result.MessageKind, surface result.Surface) []result.Message {
	var out []result.Message
	for _, m := range r.FulfillmentMessages {
		if m.Kind == kind && m.Surface == surface {
			out = append(out, m)
		}
	}
	return out
}

// IsFromSurface reports whether any fulfillment message targets the surface.
// Dialogflow does not return the request's platform, so this is a heuristic:
// an intent with no messages for that surface reads as false.
func IsFromSurface(r result.QueryResult, surface result.Surface) bool {
	for _, m := range r.FulfillmentMessages {
		if m.Surface == surface {
			return true
		}
	}
	return false
}

// IsActionsOnGoogle reports whether the result looks like an Actions on Google response.
func IsActionsOnGoogle(r result.QueryResult) bool {
	return IsFromSurface(r, result.SurfaceActionsOnGoogle)
}
