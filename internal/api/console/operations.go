package console

// Field is a form input. A field with children renders as a nested group
// whose inputs are submitted as "parent.child".
type Field struct {
	Name     string
	Tag      string
	Children []Field
}

// Operation is one API call the console can make. Endpoint segments of the
// form ":name" are filled from the field of the same name.
type Operation struct {
	Name     string
	Endpoint string
	Method   string
	Fields   []Field
}

func input(name string) Field {
	return Field{Name: name, Tag: "input"}
}

func group(name string, children ...Field) Field {
	return Field{Name: name, Children: children}
}

// Operations lists the calls shown on the console page.
var Operations = []Operation{
	{Name: "Get Session User (logged in user)", Endpoint: "/api/session", Method: "GET"},
	{Name: "Create User", Endpoint: "/api/users", Method: "POST", Fields: []Field{input("username"), input("password")}},
	{Name: "Login", Endpoint: "/api/login", Method: "POST", Fields: []Field{input("username"), input("password")}},
	{Name: "Logout", Endpoint: "/api/logout", Method: "POST"},
	{Name: "Update User", Endpoint: "/api/users", Method: "PATCH", Fields: []Field{group("update", input("username"), input("password"))}},
	{Name: "Delete User", Endpoint: "/api/users", Method: "DELETE"},
	{Name: "Get Users", Endpoint: "/api/users", Method: "GET", Fields: []Field{input("username")}},
	{Name: "Get User", Endpoint: "/api/users/:username", Method: "GET", Fields: []Field{input("username")}},
	{Name: "Get Posts (empty for all)", Endpoint: "/api/posts", Method: "GET", Fields: []Field{input("author")}},
	{Name: "Create Post", Endpoint: "/api/posts", Method: "POST", Fields: []Field{{Name: "content", Tag: "textarea"}, group("options", input("background_color"))}},
	{Name: "Update Post", Endpoint: "/api/posts/:id", Method: "PATCH", Fields: []Field{input("id"), group("update", input("content"), group("options", input("background_color")))}},
	{Name: "Delete Post", Endpoint: "/api/posts/:id", Method: "DELETE", Fields: []Field{input("id")}},
	{Name: "Get Friends", Endpoint: "/api/friends", Method: "GET"},
	{Name: "Remove Friend", Endpoint: "/api/friends/:friend", Method: "DELETE", Fields: []Field{input("friend")}},
	{Name: "Get Friend Requests", Endpoint: "/api/friend/requests", Method: "GET"},
	{Name: "Send Friend Request", Endpoint: "/api/friend/requests/:to", Method: "POST", Fields: []Field{input("to")}},
	{Name: "Remove Friend Request", Endpoint: "/api/friend/requests/:to", Method: "DELETE", Fields: []Field{input("to")}},
	{Name: "Accept Friend Request", Endpoint: "/api/friend/accept/:from", Method: "PUT", Fields: []Field{input("from")}},
	{Name: "Reject Friend Request", Endpoint: "/api/friend/reject/:from", Method: "PUT", Fields: []Field{input("from")}},
	{Name: "Get Favorites (empty for all)", Endpoint: "/api/favorites", Method: "GET", Fields: []Field{input("owner")}},
	{Name: "Create Favorite", Endpoint: "/api/favorites", Method: "POST", Fields: []Field{input("target"), input("note")}},
	{Name: "Update Favorite", Endpoint: "/api/favorites/:id", Method: "PATCH", Fields: []Field{input("id"), input("note")}},
	{Name: "Delete Favorite", Endpoint: "/api/favorites/:id", Method: "DELETE", Fields: []Field{input("id")}},
	{Name: "Create Like", Endpoint: "/api/likes/:postId", Method: "POST", Fields: []Field{input("postId"), input("type")}},
	{Name: "Get User Likes", Endpoint: "/api/likes/:username", Method: "GET", Fields: []Field{input("username"), input("type")}},
	{Name: "Get Post Likes", Endpoint: "/api/post/likes/:postId", Method: "GET", Fields: []Field{input("postId"), input("type")}},
	{Name: "Did User Like", Endpoint: "/api/user/liked/:postId", Method: "GET", Fields: []Field{input("postId"), input("type")}},
	{Name: "Update Like", Endpoint: "/api/likes/:id", Method: "PATCH", Fields: []Field{input("id"), input("type")}},
	{Name: "Delete Like", Endpoint: "/api/likes/:id", Method: "DELETE", Fields: []Field{input("id")}},
	{Name: "Get Tags", Endpoint: "/api/tags", Method: "GET", Fields: []Field{input("target"), input("name"), input("type")}},
	{Name: "Create Tag", Endpoint: "/api/tags/:id", Method: "POST", Fields: []Field{input("id"), input("name"), input("type")}},
	{Name: "Rename Tag", Endpoint: "/api/tags/:id", Method: "PATCH", Fields: []Field{input("id"), input("name")}},
	{Name: "Delete Tag", Endpoint: "/api/tags/:id", Method: "DELETE", Fields: []Field{input("id")}},
	{Name: "Tag Post", Endpoint: "/api/posts/:id/:tag", Method: "PATCH", Fields: []Field{input("id"), input("tag")}},
	{Name: "Untag Post", Endpoint: "/api/posts/:id/:tag", Method: "DELETE", Fields: []Field{input("id"), input("tag")}},
	{Name: "Get Tagged Posts", Endpoint: "/api/tags/:tag/posts", Method: "GET", Fields: []Field{input("tag")}},
	{Name: "Tag User (yourself)", Endpoint: "/api/users/tags/:tag", Method: "PATCH", Fields: []Field{input("tag")}},
	{Name: "Untag User (yourself)", Endpoint: "/api/users/tags/:tag", Method: "DELETE", Fields: []Field{input("tag")}},
	{Name: "Get Tagged Users", Endpoint: "/api/tags/:tag/users", Method: "GET", Fields: []Field{input("tag")}},
}
