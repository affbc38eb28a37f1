package fcm

const (
	DefaultIcon        = "/icons/icon-192x192.png"
	DefaultBadge       = "/icons/badge-72x72.png"
	DefaultClickAction = "/"

	notificationType = "notification"
)

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	// Data is merged over the default payload fields
	Data map[string]string
	// ClickAction is the URL opened when the notification is clicked. Default "/".
	ClickAction string
}

// payload builds the FCM data map. Web clients render it themselves, so
// title and body travel as data rather than a notification block.
func (n NotificationData) payload() map[string]string {
	clickAction := n.ClickAction
	if clickAction == "" {
		clickAction = DefaultClickAction
	}

	data := map[string]string{
		"title":        n.Title,
		"body":         n.Body,
		"icon":         DefaultIcon,
		"badge":        DefaultBadge,
		"click_action": clickAction,
		"type":         notificationType,
	}
	for k, v := range n.Data {
		data[k] = v
	}
	return data
}

// sendRequest is the body of POST /v1/projects/{project}/messages:send
type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token   string            `json:"token"`
	Data    map[string]string `json:"data"`
	Webpush webpushConfig     `json:"webpush"`
}

type webpushConfig struct {
	Headers map[string]string `json:"headers"`
}

func webpushHeaders() map[string]string {
	return map[string]string{"Urgency": "high"}
}
