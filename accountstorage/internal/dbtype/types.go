// dbtype contains the row types shared by the account storage drivers.
package dbtype

// Account is the account record as stored in the backing database.
type Account struct {
	Username             string `spanner:"Username"             db:"Username"`
	Password             string `spanner:"Password"             db:"Password"`
	LdapUser             bool   `spanner:"LdapUser"             db:"LdapUser"`
	LdapPasswordFragment string `spanner:"LdapPasswordFragment" db:"LdapPasswordFragment"`
	ApiKey               string `spanner:"ApiKey"               db:"ApiKey"`
	Disabled             bool   `spanner:"Disabled"             db:"Disabled"`
	DisplayName          string `spanner:"DisplayName"          db:"DisplayName"`
	Email                string `spanner:"Email"                db:"Email"`
	LinkedEntity         bool   `spanner:"LinkedEntity"         db:"LinkedEntity"`
}
