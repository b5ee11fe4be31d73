package common

const (
	// AuthorizationHeader carries the bearer token on admin requests.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// MaxImageSize is the largest accepted image upload, 5 MiB.
	MaxImageSize int64 = 5 << 20

	// FeedItemLimit caps the number of posts rendered into a syndication feed.
	FeedItemLimit = 20

	// UploadsPathPrefix is the public URL prefix of stored images.
	UploadsPathPrefix = "/uploads/"
)
