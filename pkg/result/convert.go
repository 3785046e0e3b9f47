package result

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/protobuf/encoding/protojson"
)

// FromProto converts a Dialogflow QueryResult. A nil input yields the zero value.
func FromProto(qr *dialogflowpb.QueryResult) QueryResult {
	if qr == nil {
		return QueryResult{}
	}

	out := QueryResult{
		QueryText:       qr.GetQueryText(),
		LanguageCode:    qr.GetLanguageCode(),
		Action:          qr.GetAction(),
		Parameters:      qr.GetParameters(),
		FulfillmentText: qr.GetFulfillmentText(),
		Intent: Intent{
			Name:        qr.GetIntent().GetName(),
			DisplayName: qr.GetIntent().GetDisplayName(),
		},
		IntentDetectionConfidence: qr.GetIntentDetectionConfidence(),
	}

	for _, m := range qr.GetFulfillmentMessages() {
		out.FulfillmentMessages = append(out.FulfillmentMessages, messageFromProto(m))
	}
	for _, c := range qr.GetOutputContexts() {
		out.OutputContexts = append(out.OutputContexts, Context{
			Name:          c.GetName(),
			LifespanCount: int(c.GetLifespanCount()),
			Parameters:    c.GetParameters(),
		})
	}
	return out
}

func messageFromProto(m *dialogflowpb.Intent_Message) Message {
	msg := Message{Surface: surfaceFromProto(m.GetPlatform())}

	switch v := m.GetMessage().(type) {
	case *dialogflowpb.Intent_Message_Text_:
		msg.Kind = KindText
		msg.Text = v.Text.GetText()
	case *dialogflowpb.Intent_Message_QuickReplies_:
		msg.Kind = KindQuickReplies
		msg.QuickReplies = &QuickReplies{
			Title:   v.QuickReplies.GetTitle(),
			Replies: v.QuickReplies.GetQuickReplies(),
		}
	case *dialogflowpb.Intent_Message_Card_:
		msg.Kind = KindCard
		card := &Card{
			Title:    v.Card.GetTitle(),
			Subtitle: v.Card.GetSubtitle(),
			ImageURI: v.Card.GetImageUri(),
		}
		for _, b := range v.Card.GetButtons() {
			card.Buttons = append(card.Buttons, CardButton{Text: b.GetText(), Postback: b.GetPostback()})
		}
		msg.Card = card
	case *dialogflowpb.Intent_Message_Image_:
		msg.Kind = KindImage
		msg.Image = &Image{
			ImageURI:          v.Image.GetImageUri(),
			AccessibilityText: v.Image.GetAccessibilityText(),
		}
	case *dialogflowpb.Intent_Message_Payload:
		msg.Kind = KindPayload
		msg.Payload = v.Payload
	case *dialogflowpb.Intent_Message_SimpleResponses_:
		msg.Kind = KindSimpleResponses
	case *dialogflowpb.Intent_Message_BasicCard_:
		msg.Kind = KindBasicCard
	case *dialogflowpb.Intent_Message_Suggestions_:
		msg.Kind = KindSuggestions
	case *dialogflowpb.Intent_Message_LinkOutSuggestion_:
		msg.Kind = KindLinkOutSuggestion
	case *dialogflowpb.Intent_Message_ListSelect_:
		msg.Kind = KindListSelect
	case *dialogflowpb.Intent_Message_CarouselSelect_:
		msg.Kind = KindCarouselSelect
	case *dialogflowpb.Intent_Message_BrowseCarouselCard_:
		msg.Kind = KindBrowseCarouselCard
	case *dialogflowpb.Intent_Message_TableCard_:
		msg.Kind = KindTableCard
	case *dialogflowpb.Intent_Message_MediaContent_:
		msg.Kind = KindMediaContent
	default:
		msg.Kind = KindUnknown
	}
	return msg
}

var jsonOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

// ParseJSON decodes a QueryResult in Dialogflow's REST JSON encoding. The input
// may be the QueryResult itself, or a detectIntent response or webhook request
// that wraps it under "queryResult".
func ParseJSON(data []byte) (QueryResult, error) {
	var envelope struct {
		QueryResult json.RawMessage `json:"queryResult"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return QueryResult{}, fmt.Errorf("parse query result: %w", err)
	}
	if len(envelope.QueryResult) > 0 {
		data = envelope.QueryResult
	}

	var qr dialogflowpb.QueryResult
	if err := jsonOptions.Unmarshal(data, &qr); err != nil {
		return QueryResult{}, fmt.Errorf("parse query result: %w", err)
	}
	return FromProto(&qr), nil
}
