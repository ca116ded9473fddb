package pools

// Web storefront.
var (
	categories = []string{"STRATEGY", "SHOOTER", "ARCADE", "TEE", "SPORTS", "SIMULATION", "ACCESSORIES"}

	// Residential ISPs plus two private-range clients.
	clientIPs = []string{
		"92.46.53.223", "212.58.253.71", "91.214.92.22", "193.33.170.23",
		"87.194.216.51", "108.65.113.83", "109.103.32.135", "118.138.38.229",
		"116.159.208.78", "95.134.237.97", "192.168.1.100", "10.0.0.50",
	}

	referrers = []string{
		"http://www.buttercupgames.com", "http://www.google.com", "http://www.bing.com",
		"http://www.yahoo.com", "http://www.facebook.com", "-",
	}

	userAgents = []string{
		"Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.9.2.28) Gecko/20120306 YFF3 Firefox/3.6.28 ( .NET CLR 3.5.30729; .NET4.0C)",
		"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/536.5 (KHTML, like Gecko) Chrome/19.0.1084.52 Safari/536.5",
		"Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 5.1; .NET CLR 2.0.50727; .NET CLR 3.0.4506.2152; .NET CLR 3.5.30729; InfoPath.1; .NET4.0C; .NET4.0E; MS-RTC LM 8)",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
)

// Database audit.
var (
	firstNames   = []string{"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda", "William", "Elizabeth"}
	lastNames    = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	emailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "company.com", "example.org"}
	dbAccounts   = []string{
		"admin on BCG using TCP/IP",
		"dbuser on BCG using TCP/IP",
		"webapp on BCG using TCP/IP",
	}
)

// Host security. admin and root appear in both name lists on purpose:
// they are probed by scanners and also used legitimately.
var (
	invalidUsers    = []string{"zabbix", "operator", "dba", "admin", "root", "oracle", "postgres", "mysql"}
	validUsers      = []string{"nsharpe", "djohnson", "admin", "root", "user1", "analyst"}
	suspiciousIPs   = []string{"208.65.153.253", "202.179.8.245", "94.102.49.190", "185.234.218.110"}
	legitimateIPs   = []string{"192.168.1.100", "10.0.0.50", "172.16.0.10"}
	privilegedUsers = []string{"root", "admin"}
)
