package queue

const TaskTypeDispatch = "dispatch:due"

// DispatchPayload kicks a dispatch cycle when a post comes due, so delivery
// does not wait for the next timer poll. The post id is informational; the
// cycle claims whatever is due through the usual atomic path.
type DispatchPayload struct {
	PostID int64 `json:"post_id"`
}
