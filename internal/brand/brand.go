// Package brand holds the fixed captions printed on the share image and
// attached to exports.
package brand

const (
	Label       = "MY  DOZLE-SHA"
	Title       = "私を構成する6つのドズル社動画"
	AuthorTitle = "%s を構成する6つのドズル社動画"
	Footer      = "#My3dozlesha  #ドズル社  youtube.com/@dozle"
	Hashtags    = "#My3dozlesha #ドズル社"
	ChannelURL  = "https://youtube.com/@dozle"
	Heading     = Title + "🎮"
	Placeholder = "（未選択）"
	Filename    = "my-dozlesha.png"
	EmptyGlyph  = "＋"
	EmptyLabel  = "選択"
	IntentTweet = "https://twitter.com/intent/tweet"
)

// ShareText is posted together with the image.
const ShareText = Heading + "\n" + Hashtags + "\n" + ChannelURL
