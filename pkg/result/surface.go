package result

import (
	"fmt"
	"strings"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
)

// Surface is the platform a fulfillment message targets. The zero value is the
// default (unspecified) surface.
type Surface string

const (
	SurfaceUnspecified     Surface = ""
	SurfaceFacebook        Surface = "FACEBOOK"
	SurfaceSlack           Surface = "SLACK"
	SurfaceTelegram        Surface = "TELEGRAM"
	SurfaceKik             Surface = "KIK"
	SurfaceSkype           Surface = "SKYPE"
	SurfaceLine            Surface = "LINE"
	SurfaceViber           Surface = "VIBER"
	SurfaceActionsOnGoogle Surface = "ACTIONS_ON_GOOGLE"
	SurfaceGoogleHangouts  Surface = "GOOGLE_HANGOUTS"
)

const unspecifiedPlatform = "PLATFORM_UNSPECIFIED"

// String returns the Dialogflow platform name.
func (s Surface) String() string {
	if s == SurfaceUnspecified {
		return unspecifiedPlatform
	}
	return string(s)
}

// ParseSurface accepts a Dialogflow platform name, case-insensitively. The
// empty string and PLATFORM_UNSPECIFIED both mean the default surface.
func ParseSurface(name string) (Surface, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" || upper == unspecifiedPlatform {
		return SurfaceUnspecified, nil
	}
	if _, ok := dialogflowpb.Intent_Message_Platform_value[upper]; !ok {
		return SurfaceUnspecified, fmt.Errorf("unknown surface %q", name)
	}
	return Surface(upper), nil
}

func surfaceFromProto(p dialogflowpb.Intent_Message_Platform) Surface {
	if p == dialogflowpb.Intent_Message_PLATFORM_UNSPECIFIED {
		return SurfaceUnspecified
	}
	return Surface(p.String())
}
