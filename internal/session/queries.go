package session

// GraphQL operation texts for the auth schema. Operation names must match
// the operationName field the transport sends.
const (
	loginMutation = `mutation Login($username: String!, $password: String!) {
  login(username: $username, password: $password) {
    token
  }
}`

	logoutMutation = `mutation Logout {
  logout
}`

	meQuery = `query Me {
  me {
    _id
    email
    roles
    fullName
    isEnabled
  }
}`

	refreshMutation = `mutation RefreshToken {
  refreshToken {
    token
  }
}`

	validateQuery = `query ValidateToken {
  validateToken
}`
)
