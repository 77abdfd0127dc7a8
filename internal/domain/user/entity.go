package user

// User represents a user entity in the system.
type User struct {
	ID        int64  // ID is assigned by the store on insert and never changes
	FirstName string // FirstName is the user's given name
	LastName  string // LastName is the user's family name
	Age       int    // Age in years
}

// Column names accepted in a partial update.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldAge       = "age"
)
