// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

// Search field keys accepted by the admin search endpoint's `fields` query param.
const (
	SearchFieldFirstName = "firstname"
	SearchFieldLastName  = "lastname"
	SearchFieldUsername  = "username"
	SearchFieldEmail     = "email"
)

// AllowedSearchFields is the closed set validated before a search query runs.
var AllowedSearchFields = map[string]bool{
	SearchFieldFirstName: true,
	SearchFieldLastName:  true,
	SearchFieldUsername:  true,
	SearchFieldEmail:     true,
}
