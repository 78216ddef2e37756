package backend

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Item is an inventory item as returned by the backend.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// ItemInput is the body of item create and update calls.
type ItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// User is a user account as returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserInput is the body of user register and update calls. An empty
// password is omitted so updates keep the current one.
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

type loginResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Token string `json:"token"`
	} `json:"data"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}
