package enums

// ArticleChangeKind tags entries on the seller article change feed.
type ArticleChangeKind string

const (
	ArticleChangeAdded   ArticleChangeKind = "added"
	ArticleChangeChanged ArticleChangeKind = "changed"
	ArticleChangeRemoved ArticleChangeKind = "removed"
)

// IsValid reports whether the value is a known ArticleChangeKind.
func (k ArticleChangeKind) IsValid() bool {
	switch k {
	case ArticleChangeAdded, ArticleChangeChanged, ArticleChangeRemoved:
		return true
	default:
		return false
	}
}
