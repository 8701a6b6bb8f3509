/*
Package iso7816 is the APDU layer used to reach a UICC or SIM card
(ISO/IEC 7816-4, ETSI TS 102 221, GSM 11.11).

It covers what an OTA test bench needs on the card side: encoding command
APDUs, reading status words, and driving the T=0 transport procedures that
make one logical command span several exchanges.

# Status words

  - 9000: normal ending.
  - 61XX, 9FXX: XX response bytes are waiting. The client fetches them with GET RESPONSE.
  - 9EXX: the SIM reports a data download error and XX bytes of response.
    The client fetches them too.
  - 91XX: normal ending with a proactive command of XX bytes pending.
  - 6CXX: wrong Le. The client re-sends the command with Le = XX.

# Usage

	client := iso7816.NewClient(card, logger)
	trace, err := client.Send(iso7816.Envelope(iso7816.ClaUICCToolkit, data))
	if err != nil {
	    return err
	}
	fmt.Println(trace.Describe())
*/
package iso7816
