package relay

// Messages returned to callers. They are shown verbatim in the UI.
const (
	MsgNotAuthenticated = "Not authenticated"
	MsgUnknownError     = "An unknown error occurred."
	MsgInvalidToken     = "Received an invalid session token."

	MsgLoginSucceeded = "Login successful."
	MsgLoginFailed    = "Login failed. Please check your credentials."
	MsgLoggedOut      = "Logged out."

	MsgFetchItemsFailed = "Failed to fetch items."
	MsgItemAdded        = "Item added successfully."
	MsgAddItemFailed    = "Failed to add item."
	MsgItemUpdated      = "Item updated successfully."
	MsgUpdateItemFailed = "Failed to update item."
	MsgItemDeleted      = "Item deleted successfully"
	MsgDeleteItemFailed = "Failed to delete item"

	MsgFetchUsersFailed = "Failed to fetch users."
	MsgUserAdded        = "User registered successfully."
	MsgAddUserFailed    = "Can't register user at this time."
	MsgUserUpdated      = "User updated successfully."
	MsgUpdateUserFailed = "Can't update user at this time."
	MsgUserDeleted      = "User deleted successfully"
	MsgDeleteUserFailed = "Failed to delete user"
)

// Result is the outcome of every relay action. A failed read carries nil
// Data, which is distinct from a successful read of an empty list.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Ack is the result of an action that returns no data.
type Ack = Result[any]

func succeed[T any](message string, data T) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

func fail[T any](message string) Result[T] {
	return Result[T]{Message: message}
}
