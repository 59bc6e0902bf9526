package userinfo

import (
	"bytes"
	"fmt"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// RenderCard builds the user info box for a decoded row. All values are
// inserted as escaped text. UserName is intentionally not rendered.
func RenderCard(info UserInfo) g.Node {
	return h.Div(
		h.Class("user_info_box"),
		slot("user_fullname", info.UserFullName),
		slot("user_email", info.UserEmail),
		slot("user_phone", info.UserPhone),
		slot("company_name", info.CompanyName),
		slot("user_role", info.UserRole),
		slot("company_address", info.CompanyAddress),
		slot("company_phone", info.CompanyPhone),
		slot("user_image", info.UserImage),
	)
}

// RenderCards composes cards in order.
func RenderCards(infos []UserInfo) g.Node {
	return g.Map(infos, RenderCard)
}

// RenderMessage renders a plain escaped text message.
func RenderMessage(message string) g.Node {
	return g.Text(message)
}

// RenderHTML renders a node into a string.
func RenderHTML(node g.Node) (string, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return "", fmt.Errorf("userinfo: render markup: %w", err)
	}
	return buf.String(), nil
}

func slot(class, value string) g.Node {
	return h.Div(h.Class(class), g.Text(value))
}
