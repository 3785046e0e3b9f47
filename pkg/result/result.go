// Package result holds the read-only view of a Dialogflow query result that
// the assertion engine evaluates.
package result

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// MessageKind names the variant of a fulfillment message. The values match the
// oneof field names of Dialogflow's Intent.Message.
type MessageKind string

const (
	KindText               MessageKind = "text"
	KindQuickReplies       MessageKind = "quickReplies"
	KindCard               MessageKind = "card"
	KindImage              MessageKind = "image"
	KindPayload            MessageKind = "payload"
	KindSimpleResponses    MessageKind = "simpleResponses"
	KindBasicCard          MessageKind = "basicCard"
	KindSuggestions        MessageKind = "suggestions"
	KindLinkOutSuggestion  MessageKind = "linkOutSuggestion"
	KindListSelect         MessageKind = "listSelect"
	KindCarouselSelect     MessageKind = "carouselSelect"
	KindBrowseCarouselCard MessageKind = "browseCarouselCard"
	KindTableCard          MessageKind = "tableCard"
	KindMediaContent       MessageKind = "mediaContent"
	KindUnknown            MessageKind = "unknown"
)

// QueryResult is a snapshot of one detectIntent answer.
type QueryResult struct {
	QueryText                 string
	LanguageCode              string
	Action                    string
	Parameters                *structpb.Struct
	FulfillmentText           string
	Intent                    Intent
	IntentDetectionConfidence float32
	FulfillmentMessages       []Message
	OutputContexts            []Context
}

// Intent identifies the matched intent.
type Intent struct {
	Name        string
	DisplayName string
}

// Message is one fulfillment message. Exactly one payload field is set, chosen
// by Kind; kinds without a typed payload carry only the tag.
type Message struct {
	Kind    MessageKind
	Surface Surface

	Text         []string
	QuickReplies *QuickReplies
	Card         *Card
	Image        *Image
	Payload      *structpb.Struct
}

// FirstText returns the primary candidate of a text message.
func (m Message) FirstText() (string, bool) {
	if m.Kind != KindText || len(m.Text) == 0 {
		return "", false
	}
	return m.Text[0], true
}

// QuickReplies is the payload of a quickReplies message.
type QuickReplies struct {
	Title   string   `yaml:"title,omitempty" json:"title,omitempty"`
	Replies []string `yaml:"replies" json:"replies"`
}

// Card is the payload of a card message.
type Card struct {
	Title    string       `yaml:"title,omitempty" json:"title,omitempty"`
	Subtitle string       `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	ImageURI string       `yaml:"imageUri,omitempty" json:"imageUri,omitempty"`
	Buttons  []CardButton `yaml:"buttons,omitempty" json:"buttons,omitempty"`
}

// CardButton is a single button on a card.
type CardButton struct {
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	Postback string `yaml:"postback,omitempty" json:"postback,omitempty"`
}

// Image is the payload of an image message.
type Image struct {
	ImageURI          string
	AccessibilityText string
}

// Context is an output context attached to the result.
type Context struct {
	// Name is the full resource path, e.g.
	// projects/p/agent/sessions/s/contexts/greeting.
	Name          string
	LifespanCount int
	Parameters    *structpb.Struct
}
